// Package cli implements rcfctl, the operator command line for the training service.
package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"gorm.io/gorm"
)

// Connector opens the document store and returns its closer
type Connector func() (*gorm.DB, func(), error)

// RootOptions holds global flags and shared collaborators for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	connect Connector
	log     *logrus.Entry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates rcfctl, connecting with the DB_* environment.
func NewRootCommand() *cobra.Command {
	return newRootCommand(func() (*gorm.DB, func(), error) {
		cfg, err := config.LoadDatabase()
		if err != nil {
			return nil, nil, err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = database.Close(db) }, nil
	})
}

func newRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "rcfctl",
		Short: "rcfctl - training application operator tool",
		Long:  "Operator commands for the internship application service: schema migration, seeding, slot audits and college review.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			// logs go to stderr to keep json output clean
			opts.log = logrus.NewEntry(logging.NewWithOutput(level, "text", cmd.ErrOrStderr()))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSlotsCommand(opts))
	cmd.AddCommand(NewCollegesCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// open connects for the command's lifetime
func (o *RootOptions) open() (*gorm.DB, func(), error) {
	db, closeDB, err := o.connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, closeDB, nil
}

// emit writes v as indented JSON in json mode, otherwise calls text
func (o *RootOptions) emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.Format != "json" {
		text(w)
		return nil
	}
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
