package main

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <path>",
		Short: "List the version history of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runVersions,
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <path> <version-key>",
		Short: "Restore a file to an earlier version",
		Args:  cobra.ExactArgs(2),
		RunE:  runRestore,
	}
}

func runVersions(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	versions, err := fs.ListFileVersions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, versions)
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			v.Key,
			formatSize(int64(v.Size)),
			formatTime(time.Unix(v.Mtime, 0)),
			v.Etag,
		})
	}

	printTable(os.Stdout, []string{"KEY", "SIZE", "MODIFIED", "ETAG"}, rows)

	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.RestoreFileVersion(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}

	statusf("Restored %s to version %s\n", args[0], strconv.Quote(args[1]))

	return nil
}
