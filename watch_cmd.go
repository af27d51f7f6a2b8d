package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgnsrekt/mailreader/internal/inbox"
	"github.com/spf13/cobra"
)

var (
	watchExisting  bool
	watchSummarize bool

	watchCmd = &cobra.Command{
		Use:     "watch DIR",
		Short:   "Read new PDFs aloud as they arrive in a directory",
		Example: paragraph("mailreader watch ~/Scans\nmailreader watch --summarize --existing ~/Mail"),
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			dir := expandPath(args[0])
			fmt.Printf("Watching %s for new PDFs. Press Ctrl+C to stop.\n", keyword(dir))
			return inbox.Watch(ctx, inbox.Config{Dir: dir, Existing: watchExisting}, func(ctx context.Context, path string) error {
				return readDocument(ctx, a, path, watchSummarize)
			})
		},
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also read the PDFs already in DIR")
	watchCmd.Flags().BoolVarP(&watchSummarize, "summarize", "S", false, "read a summary instead of the full text")
}
