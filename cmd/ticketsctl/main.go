package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/Hrei2/ticket-system/db"
	dbHistory "github.com/Hrei2/ticket-system/db/history"
	dbSettings "github.com/Hrei2/ticket-system/db/settings"
	dbTickets "github.com/Hrei2/ticket-system/db/tickets"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/history"
	"github.com/Hrei2/ticket-system/settings"
)

func main() {
	log.Init(logrus.WarnLevel)

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	var dbconn *sqlx.DB

	return &cli.App{
		Name:  "ticketsctl",
		Usage: "Operate the ticket system database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "postgres-url",
				Usage:    "Postgres connection string",
				EnvVars:  []string{"POSTGRES_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			conn, err := db.Open(c.String("postgres-url"))
			if err != nil {
				return err
			}
			dbconn = conn

			return db.InitializeDatabaseSchema(dbconn)
		},
		After: func(c *cli.Context) error {
			if dbconn == nil {
				return nil
			}
			return dbconn.Close()
		},
		Commands: []*cli.Command{
			{
				Name:  "settings",
				Usage: "show or replace the event settings",
				Subcommands: []*cli.Command{
					{
						Name:  "show",
						Usage: "print the active settings",
						Action: func(c *cli.Context) error {
							s, err := settings.NewRegistry(dbSettings.NewPostgresRepository(dbconn)).Get(c.Context)
							if err != nil {
								return err
							}
							return printJSON(out, s)
						},
					},
					{
						Name:  "set",
						Usage: "replace the active settings",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "event-date",
								Usage:    "event date, YYYY-MM-DD",
								Required: true,
							},
							&cli.StringSliceFlag{
								Name:     "range",
								Usage:    "age range and its color, e.g. 0-15=#FF6B6B, in matching order",
								Required: true,
							},
							&cli.StringSliceFlag{
								Name:  "class",
								Usage: "allowed ticket class, repeat for more",
							},
						},
						Action: func(c *cli.Context) error {
							eventDate, err := time.Parse(entity.EventDateLayout, c.String("event-date"))
							if err != nil {
								return fmt.Errorf("invalid event date %q: %w", c.String("event-date"), err)
							}

							ranges, err := parseRanges(c.StringSlice("range"))
							if err != nil {
								return err
							}

							s, err := settings.NewRegistry(dbSettings.NewPostgresRepository(dbconn)).
								Upsert(c.Context, eventDate, ranges, c.StringSlice("class"))
							if err != nil {
								return err
							}
							return printJSON(out, s)
						},
					},
				},
			},
			{
				Name:  "history",
				Usage: "print audit history, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "ticket",
						Usage: "only entries of this ticket number",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "maximum entries when no ticket is given",
						Value: history.DefaultListLimit,
					},
				},
				Action: func(c *cli.Context) error {
					ledger := history.NewLedger(dbHistory.NewPostgresRepository(dbconn), clockwork.NewRealClock())

					var (
						entries []entity.HistoryEntry
						err     error
					)
					if ticketNumber := c.String("ticket"); ticketNumber != "" {
						entries, err = ledger.List(c.Context, ticketNumber)
					} else {
						entries, err = ledger.ListAll(c.Context, c.Int("limit"))
					}
					if err != nil {
						return err
					}

					for _, e := range entries {
						fmt.Fprintf(out, "%v\t%v\t%v\t%v\n",
							e.ChangedAt.Format(time.RFC3339),
							e.TicketNumber,
							e.Action,
							e.ChangedBy,
						)
					}
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "print ticket counters",
				Action: func(c *cli.Context) error {
					stats, err := dbTickets.NewPostgresRepository(dbconn).Statistics(c.Context)
					if err != nil {
						return err
					}
					return printJSON(out, stats)
				},
			},
		},
	}
}

// parseRanges reads "<range>=<color>" pairs. The split is on the first "=",
// colors never contain one.
func parseRanges(values []string) (entity.ColorRanges, error) {
	ranges := make(entity.ColorRanges, 0, len(values))
	for _, v := range values {
		r, color, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid range %q, expected <range>=<color>", v)
		}
		ranges = append(ranges, entity.ColorRange{
			Range: strings.TrimSpace(r),
			Color: strings.TrimSpace(color),
		})
	}

	if err := settings.ValidateRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
