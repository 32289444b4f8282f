package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/urlnorm"
	"tokenhunter-event-gate/internal/validate"
)

type rootFlags struct {
	timeout   time.Duration
	userAgent string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "gatecli",
		Short:         "Check event URLs through the validation gate from the command line",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "HTTP timeout per request")
	rootCmd.PersistentFlags().StringVar(&flags.userAgent, "user-agent", "", "Override the User-Agent header")

	rootCmd.AddCommand(
		newValidateCmd(flags),
		newCanonicalCmd(flags),
		newDedupeCmd(flags),
	)

	return rootCmd
}

func newValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>",
		Short: "Fetch a URL and print the gate verdict as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := validate.DefaultConfig()
			if flags.timeout > 0 {
				cfg.Timeout = flags.timeout
			}
			if strings.TrimSpace(flags.userAgent) != "" {
				cfg.UserAgent = flags.userAgent
			}

			v := validate.NewURLValidator(cfg, nil, zap.NewNop().Sugar())
			defer v.Close()

			verdict := v.ValidateURL(cmd.Context(), args[0])
			return printJSON(cmd.OutOrStdout(), verdict)
		},
	}
}

func newCanonicalCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "canonical <url>",
		Short: "Resolve a URL to its canonical form and print the redirect chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm := newNormalizer(flags)

			final, chain := norm.FollowRedirects(cmd.Context(), args[0])
			out := struct {
				CanonicalURL  string   `json:"canonical_url"`
				RedirectChain []string `json:"redirect_chain,omitempty"`
				LumaID        string   `json:"luma_id,omitempty"`
			}{
				CanonicalURL:  final,
				RedirectChain: chain,
			}
			if id, ok := norm.ExtractLumaID(cmd.Context(), args[0]); ok {
				out.LumaID = id
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newDedupeCmd(flags *rootFlags) *cobra.Command {
	var file string

	dedupeCmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Group URLs from a file (or stdin) by canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if strings.TrimSpace(file) != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			dedupe := urlnorm.NewDeduplicator(newNormalizer(flags))

			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				dedupe.Add(cmd.Context(), line)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read urls: %w", err)
			}

			groups := map[string][]string{}
			for _, canonical := range dedupe.Canonicals() {
				groups[canonical] = dedupe.Variants(cmd.Context(), canonical)
			}

			keys := make([]string, 0, len(groups))
			for k := range groups {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				if err := printJSON(cmd.OutOrStdout(), struct {
					CanonicalURL string   `json:"canonical_url"`
					Variants     []string `json:"variants"`
				}{CanonicalURL: k, Variants: groups[k]}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	dedupeCmd.Flags().StringVarP(&file, "file", "f", "-", "File with one URL per line (default stdin)")
	return dedupeCmd
}

func newNormalizer(flags *rootFlags) *urlnorm.Normalizer {
	cfg := urlnorm.DefaultConfig()
	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}
	if strings.TrimSpace(flags.userAgent) != "" {
		cfg.UserAgent = flags.userAgent
	}
	return urlnorm.NewNormalizer(cfg, zap.NewNop().Sugar())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
