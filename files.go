package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/cboxdev/cs3fs-go/internal/cs3fs"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "List directory contents",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display resource metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a file",
		Long: `Download a file. With a local path the content is streamed to disk.
Without one the content is printed to stdout, negotiated as text when
it decodes as UTF-8 and base64 otherwise. --format forces the
representation: text, base64, or byte.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGet,
	}

	cmd.Flags().String("format", "", "force content format (text, base64, byte)")

	return cmd
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-path> [remote-path]",
		Short: "Upload a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPut,
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory (recursive)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file or directory",
		Long: `Remove a file or directory. Directory removal is recursive on the
backend side; use --recursive (-r) to confirm intent when removing
directories.`,
		Args: cobra.ExactArgs(1),
		RunE: runRm,
	}

	cmd.Flags().BoolP("recursive", "r", false, "confirm recursive directory removal")

	return cmd
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move or rename a resource",
		Args:  cobra.ExactArgs(2),
		RunE:  runMv,
	}
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <source> <destination>",
		Short: "Copy a file or directory tree",
		Long: `Copy a file or directory tree server-to-server. Single files are
streamed so content never fully materializes client-side; directories
are copied depth-first, one transfer at a time.`,
		Args: cobra.ExactArgs(2),
		RunE: runCp,
	}
}

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota [path]",
		Short: "Display the storage quota",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runQuota,
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	entries, err := fs.ListDir(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Stat.Mode().String(),
			formatSize(e.Stat.Size),
			formatTime(time.Unix(e.Stat.Mtime, 0)),
			e.Name,
		})
	}

	printTable(os.Stdout, []string{"MODE", "SIZE", "MODIFIED", "NAME"}, rows)

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	st, err := fs.Lstat(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	size := st.Size
	if st.IsDir() {
		size = fs.DirSize(cmd.Context(), args[0])
	}

	if flagJSON {
		return printJSON(os.Stdout, map[string]any{
			"path":     args[0],
			"size":     size,
			"mtime":    st.Mtime,
			"ctime":    st.Ctime,
			"mode":     st.Mode().String(),
			"writable": st.Writable,
		})
	}

	fmt.Printf("Path:     %s\n", args[0])
	fmt.Printf("Size:     %s\n", formatSize(size))
	fmt.Printf("Modified: %s\n", formatTime(time.Unix(st.Mtime, 0)))
	fmt.Printf("Mode:     %s\n", st.Mode())
	fmt.Printf("Writable: %v\n", st.Writable)

	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	remote := args[0]

	if len(args) == 2 {
		return downloadToFile(cmd, fs, remote, args[1])
	}

	format, _ := cmd.Flags().GetString("format")

	content, err := fs.ReadFile(cmd.Context(), remote, format)
	if err != nil {
		return err
	}

	if content.Format == cs3fs.FormatByte {
		_, err = os.Stdout.Write(content.Raw)

		return err
	}

	fmt.Println(content.Text)

	return nil
}

// downloadToFile streams remote content to a local file without
// buffering it in memory.
func downloadToFile(cmd *cobra.Command, fs *cs3fs.FS, remote, local string) error {
	rc, err := fs.OpenRead(cmd.Context(), remote)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("creating %s: %w", local, err)
	}
	defer out.Close()

	n, err := io.Copy(out, rc)
	if err != nil {
		return fmt.Errorf("writing %s: %w", local, err)
	}

	statusf("Downloaded %s (%s)\n", remote, formatSize(n))

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	local := args[0]

	remote := path.Join(resolvedCfg.RootPath, path.Base(local))
	if len(args) == 2 {
		remote = args[1]
	}

	in, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("opening %s: %w", local, err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stating %s: %w", local, err)
	}

	if err := fs.WriteStream(cmd.Context(), remote, in, fi.Size()); err != nil {
		return err
	}

	statusf("Uploaded %s to %s (%s)\n", local, remote, formatSize(fi.Size()))

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.EnsureDirExists(cmd.Context(), args[0]); err != nil {
		return err
	}

	statusf("Created %s\n", args[0])

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	target := args[0]

	if fs.IsDir(cmd.Context(), target) {
		recursive, _ := cmd.Flags().GetBool("recursive")
		if !recursive {
			return fmt.Errorf("%s is a directory — use --recursive to remove it", target)
		}

		if err := fs.RemoveTree(cmd.Context(), target); err != nil {
			return err
		}
	} else if err := fs.Unlink(cmd.Context(), target); err != nil {
		return err
	}

	statusf("Removed %s\n", target)

	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}

	statusf("Moved %s to %s\n", args[0], args[1])

	return nil
}

func runCp(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	src, dst := args[0], args[1]

	if fs.IsDir(cmd.Context(), src) {
		if err := fs.CopyTree(cmd.Context(), src, dst); err != nil {
			return err
		}
	} else if err := fs.CopyFile(cmd.Context(), src, dst); err != nil {
		return err
	}

	statusf("Copied %s to %s\n", src, dst)

	return nil
}

func runQuota(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	target := resolvedCfg.RootPath
	if len(args) == 1 {
		target = args[0]
	}

	quota, err := fs.Quota(cmd.Context(), target)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, quota)
	}

	fmt.Printf("Used:  %s\n", formatSize(int64(quota.UsedBytes)))
	fmt.Printf("Total: %s\n", formatSize(int64(quota.TotalBytes)))

	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
