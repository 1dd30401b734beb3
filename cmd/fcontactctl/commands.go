package main

import (
	"errors"
	"fmt"
	"strconv"

	cli "github.com/urfave/cli/v2"

	"Driftwood/internal/core/fcontacts"
	"Driftwood/internal/core/moderation"
	postgresRepo "Driftwood/internal/db/postgres"
)

var resolveCmd = &cli.Command{
	Name:      "resolve",
	Usage:     "resolve a handle through the cache",
	ArgsUsage: "<user@host|profile-url>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "refresh",
			Usage: "refresh policy: auto, force or never",
			Value: "auto",
		},
	},
	Action: func(cctx *cli.Context) error {
		handle := cctx.Args().First()
		if handle == "" {
			return errors.New("need to provide a handle as an argument")
		}
		policy, err := fcontacts.ParseRefreshPolicy(cctx.String("refresh"))
		if err != nil {
			return err
		}

		db, err := openDB(cctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc, queue, err := newFContactService(loadConfig(cctx), db)
		if err != nil {
			return err
		}

		contact, err := svc.Resolve(cctx.Context, handle, policy)
		if err != nil {
			return err
		}
		defer drain(cctx.Context, queue)

		if contact == nil {
			return fmt.Errorf("could not resolve %s", handle)
		}
		return printJSON(contact)
	},
}

var guidCmd = &cli.Command{
	Name:      "guid",
	Usage:     "print the profile URL cached for a Diaspora guid",
	ArgsUsage: "<guid>",
	Action: func(cctx *cli.Context) error {
		guid := cctx.Args().First()
		if guid == "" {
			return errors.New("need to provide a guid as an argument")
		}

		db, err := openDB(cctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc, _, err := newFContactService(loadConfig(cctx), db)
		if err != nil {
			return err
		}

		url, ok, err := svc.LookupURLByGUID(cctx.Context, guid)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no contact with guid %s", guid)
		}
		fmt.Println(url)
		return nil
	},
}

var probeCmd = &cli.Command{
	Name:      "probe",
	Usage:     "run webfinger and hcard discovery without touching the cache",
	ArgsUsage: "<user@host|profile-url>",
	Action: func(cctx *cli.Context) error {
		handle := cctx.Args().First()
		if handle == "" {
			return errors.New("need to provide a handle as an argument")
		}

		doc, err := newResolver(loadConfig(cctx)).Probe(cctx.Context, handle, fcontacts.NetworkDiaspora)
		if err != nil {
			return err
		}
		return printJSON(doc)
	},
}

var nodeinfoCmd = &cli.Command{
	Name:  "nodeinfo",
	Usage: "maintain the published node statistics",
	Subcommands: []*cli.Command{
		{
			Name:  "update",
			Usage: "recompute and store the statistics",
			Action: func(cctx *cli.Context) error {
				db, err := openDB(cctx)
				if err != nil {
					return err
				}
				defer db.Close()

				return newNodeinfoService(loadConfig(cctx), db).Update(cctx.Context)
			},
		},
		{
			Name:  "usage",
			Usage: "print the stored statistics",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "v1", Usage: "use the 1.0 document shape"},
			},
			Action: func(cctx *cli.Context) error {
				db, err := openDB(cctx)
				if err != nil {
					return err
				}
				defer db.Close()

				usage, err := newNodeinfoService(loadConfig(cctx), db).Usage(cctx.Context, !cctx.Bool("v1"))
				if err != nil {
					return err
				}
				return printJSON(usage)
			},
		},
	},
}

var reportCmd = &cli.Command{
	Name:  "report",
	Usage: "file and read moderation reports",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "report a contact",
			ArgsUsage: "<contact-id> [post-uri-id...]",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "uid", Usage: "reporting local user", Required: true},
				&cli.StringFlag{Name: "comment"},
				&cli.BoolFlag{Name: "forward", Usage: "forward the report to the contact's server"},
			},
			Action: func(cctx *cli.Context) error {
				ids, err := parseIDs(cctx.Args().Slice())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					return errors.New("need to provide a contact id as an argument")
				}

				db, err := openDB(cctx)
				if err != nil {
					return err
				}
				defer db.Close()

				svc := moderation.NewService(postgresRepo.NewReportRepository(db))
				report, err := svc.Create(cctx.Context, cctx.Int64("uid"), ids[0], cctx.String("comment"), cctx.Bool("forward"), ids[1:])
				if err != nil {
					return err
				}
				return printJSON(report)
			},
		},
		{
			Name:      "get",
			Usage:     "print a stored report",
			ArgsUsage: "<report-id>",
			Action: func(cctx *cli.Context) error {
				ids, err := parseIDs(cctx.Args().Slice())
				if err != nil {
					return err
				}
				if len(ids) != 1 {
					return errors.New("need to provide exactly one report id")
				}

				db, err := openDB(cctx)
				if err != nil {
					return err
				}
				defer db.Close()

				report, err := moderation.NewService(postgresRepo.NewReportRepository(db)).Get(cctx.Context, ids[0])
				if err != nil {
					return err
				}
				return printJSON(report)
			},
		},
	},
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
