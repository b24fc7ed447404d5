package main

import (
	"fmt"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAssignCmd(g *globals) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Place unassigned eligible registrants into groups",
		Long:  "Place every unassigned registrant aged 12 or over into the smallest group, or only the one named by --id.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Batch(), g.log, "cli assign")
			defer cancel()
			db, err := g.connect(ctx)
			if err != nil {
				return err
			}

			op := registrantstore.OpAssignAllUngrouped
			var opArgs map[string]any
			if id != "" {
				op = registrantstore.OpAssignOne
				opArgs = map[string]any{"id": id}
			}

			out, err := registrantstore.New(db, g.log).Invoke(ctx, op, opArgs)
			res, _ := out.(registrantstore.AssignResult)
			g.audit(db).GroupsAssigned(ctx, nil, primitive.NilObjectID, op, res.Assigned, err)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Assigned %d registrant(s)\n", res.Assigned)
			for grp := rules.MinGroup; grp <= rules.MaxGroup; grp++ {
				fmt.Fprintf(w, "  Group %d: %d\n", grp, res.Groups[grp])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "assign only this registrant (hex id)")
	return cmd
}
