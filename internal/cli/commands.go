package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/steelsid0609/training-rcf/data"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/services"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load training slots and master colleges",
		Long: `Load training slots and master colleges from a YAML file.

Without -f the built-in reference data is used. Existing slots (same label and
start date) and colleges (same name) are skipped, so seeding can be rerun.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = bytes.NewReader(data.Seed)
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			seed, err := services.LoadSeed(r)
			if err != nil {
				return err
			}

			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := services.ApplySeed(cmd.Context(), db, seed, rootOpts.log)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "slots: %d created, %d skipped\n", res.SlotsCreated, res.SlotsSkipped)
				fmt.Fprintf(w, "colleges: %d created, %d skipped\n", res.CollegesCreated, res.CollegesSkipped)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file")
	return cmd
}

// NewSlotsCommand creates the slots command group.
func NewSlotsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect and audit training slots",
	}
	cmd.AddCommand(newSlotsListCommand(rootOpts))
	cmd.AddCommand(newSlotsReconcileCommand(rootOpts))
	return cmd
}

func newSlotsListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List training slots",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			slots, err := services.ListSlots(cmd.Context(), db, !all)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), slots, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLABEL\tSTART\tACTIVE\tAPPROVED")
				for _, s := range slots {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", s.ID, s.Label, s.StartDate, s.IsActive, s.ApplicationCount)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive slots")
	return cmd
}

func newSlotsReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare slot counts with approved applications",
		Long: `Compare each slot's application count with the approved applications on it.

Drift is only reported unless --apply is given. Counts are only ever raised.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			drift, err := services.ReconcileSlotCounts(cmd.Context(), db, apply, rootOpts.log)
			if err != nil {
				return err
			}
			if drift == nil {
				drift = []services.SlotDrift{}
			}
			return rootOpts.emit(cmd.OutOrStdout(), drift, func(w io.Writer) {
				if len(drift) == 0 {
					fmt.Fprintln(w, "no drift")
					return
				}
				verb := "would raise"
				if apply {
					verb = "raised"
				}
				for _, d := range drift {
					fmt.Fprintf(w, "%s (%s): %s %d -> %d\n", d.Label, d.SlotID, verb, d.Recorded, d.Counted)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "raise drifted counts")
	return cmd
}

// NewCollegesCommand creates the colleges command group.
func NewCollegesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colleges",
		Short: "Review colleges submitted with applications",
	}
	cmd.AddCommand(newCollegesPendingCommand(rootOpts))
	cmd.AddCommand(newCollegesPromoteCommand(rootOpts))
	cmd.AddCommand(newCollegesMergeCommand(rootOpts))
	return cmd
}

func newCollegesPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "pending",
		Short:        "List submitted colleges awaiting review",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			temps, err := services.ListTempColleges(cmd.Context(), db, models.TempCollegePending)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), temps, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCITY\tSUBMITTED BY")
				for _, c := range temps {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.City, c.SubmittedBy)
				}
				tw.Flush()
			})
		},
	}
}

func newCollegesPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "promote <temp-id>",
		Short:        "Promote a submitted college to the master list",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			college, relinked, err := services.PromoteTempCollege(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			result := map[string]interface{}{"college": college, "relinked": relinked}
			return rootOpts.emit(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "promoted %q as %s, %d application(s) relinked\n", college.Name, college.ID, relinked)
			})
		},
	}
}

func newCollegesMergeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "merge <temp-id> <master-id>",
		Short:        "Merge a submitted college into a master record",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := services.MergeTempCollege(cmd.Context(), db, args[0], args[1])
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "merged into %q, %d application(s) relinked\n", res.College.Name, res.Relinked)
				for _, d := range res.Diff {
					fmt.Fprintf(w, "  %s: master %q, submitted %q\n", d.Field, d.Master, d.Temp)
				}
				for _, f := range res.AddedFaculties {
					fmt.Fprintf(w, "  added faculty %s\n", f)
				}
			})
		},
	}
}
