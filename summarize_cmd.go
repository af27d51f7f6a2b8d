package main

import (
	"fmt"
	"path/filepath"

	"github.com/dgnsrekt/mailreader/internal/pdf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var summarizeCmd = &cobra.Command{
	Use:     "summarize FILE.pdf",
	Aliases: []string{"sum"},
	Short:   "Print a summary of a PDF",
	Long: paragraph(fmt.Sprintf("\n%s the text of a PDF. An OpenAI-compatible model is used when %s or %s is set, otherwise the first sentences are kept.",
		keyword("Summarize"), keyword("OPENAI_API_KEY"), keyword("summary.base_url"))),
	Example: paragraph("mailreader summarize letter.pdf\nmailreader summarize --max-length 60 letter.pdf"),
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"pdf"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pdf.Validate(args[0]); err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		content, err := a.extractor.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		s, err := a.summarizer.Summarize(cmd.Context(), content)
		if err != nil {
			return fmt.Errorf("unable to summarize: %w", err)
		}

		mode := "simple"
		if a.summarizer.UsesModel() {
			mode = viper.GetString("summary.model")
			if mode == "" {
				mode = "model"
			}
		}
		printMarkdown(fmt.Sprintf("# %s\n\n%s\n\n*%s summary*\n", filepath.Base(args[0]), s, mode))
		return nil
	},
}

func init() {
	summarizeCmd.Flags().Int("max-length", 100, "maximum summary length")
	summarizeCmd.Flags().Int("min-length", 50, "minimum summary length (model summaries)")
	_ = viper.BindPFlag("summary.max_length", summarizeCmd.Flags().Lookup("max-length"))
	_ = viper.BindPFlag("summary.min_length", summarizeCmd.Flags().Lookup("min-length"))
}
