package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
)

var (
	dumpDBDescription = `Dumps the history database. The output format should not be depended upon.`
	dumpDBCommand     = &cobra.Command{
		Use:     "dumpdb",
		Short:   "Dump the history database",
		Long:    dumpDBDescription,
		RunE:    dumpDBCmd,
		Example: "DATABASE",
		Args:    cobra.ExactArgs(1),
		Hidden:  true,
	}
)

func dumpDBCmd(c *cobra.Command, args []string) error {
	db, err := bbolt.Open(args[0], 0o600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("opening database %q: %w", args[0], err)
	}
	defer db.Close()

	encode := func(value []byte) string {
		var b strings.Builder
		for i := range value {
			if value[i] <= 32 || value[i] >= 127 || value[i] == 34 || value[i] == 61 {
				b.WriteString(fmt.Sprintf("\\%03o", value[i]))
			} else {
				b.WriteByte(value[i])
			}
		}
		return b.String()
	}

	return db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			fmt.Printf("[%q]\n", encode(name))
			return b.ForEach(func(k, v []byte) (err error) {
				_, err = fmt.Printf(" %q = %q\n", encode(k), encode(v))
				return err
			})
		})
	})
}

func init() {
	rootCmd.AddCommand(dumpDBCommand)
}
