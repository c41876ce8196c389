package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/modbot/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	gatewayURL string
	cfgFile    string
	outFormat  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "modctl",
	Short: "Drive and inspect a modbot gateway",
	Long: `modctl talks to a running modbot gateway.

It can inject chat events as a reporting user, a public channel poster or a
moderator, and inspect the moderation queue, karma counts, the outbox and the
audit log.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".modctl"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("modctl")
		viper.AutomaticEnv()
		viper.SetDefault("public_channel", "group-1")
		viper.SetDefault("mod_channel", "group-1-mod")
		_ = viper.ReadInConfig()

		if gatewayURL == "" {
			gatewayURL = viper.GetString("gateway_url")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:8090"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.modctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "modbot gateway URL (default http://localhost:8090)")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "text", "Output format: text or json")

	rootCmd.AddCommand(dmCmd, postCmd, editCmd, modCmd, queueCmd, karmaCmd, outboxCmd, auditCmd, versionCmd)
}

func newClient() (*client.Client, error) {
	return client.New(gatewayURL, client.WithTimeout(30*time.Second))
}

// ── dm ───────────────────────────────────────────────────────────────────────

var dmName string

var dmCmd = &cobra.Command{
	Use:   "dm <user-id> <text...>",
	Short: "Send a direct message to the bot as a user",
	Long: `Send a direct message to the bot and print its replies.

  modctl dm 42 report
  modctl dm 42 https://discord.com/channels/100/200/300`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := dmName
		if name == "" {
			name = args[0]
		}
		return sendEvent(cmd.Context(), client.Event{
			Type:       "message",
			AuthorID:   args[0],
			AuthorName: name,
			Content:    strings.Join(args[1:], " "),
		})
	},
}

func init() {
	dmCmd.Flags().StringVar(&dmName, "name", "", "Display name of the user (defaults to the id)")
}

// ── post / edit ──────────────────────────────────────────────────────────────

type guildFlags struct {
	guild       string
	channel     string
	channelName string
	messageID   string
	author      string
	authorName  string
}

func (f *guildFlags) register(cmd *cobra.Command, channelKey string) {
	cmd.Flags().StringVar(&f.guild, "guild", "", "Guild id (required)")
	cmd.Flags().StringVar(&f.channel, "channel", "", "Channel id (required)")
	cmd.Flags().StringVar(&f.channelName, "channel-name", "", "Channel name (default from config key "+channelKey+")")
	cmd.Flags().StringVar(&f.messageID, "id", "", "Message id (default: current unix nanoseconds)")
	cmd.Flags().StringVar(&f.author, "author", "", "Author id (required)")
	cmd.Flags().StringVar(&f.authorName, "author-name", "", "Author display name (defaults to the id)")
	_ = cmd.MarkFlagRequired("guild")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("author")
}

func (f *guildFlags) event(kind, channelKey string, args []string) client.Event {
	ev := client.Event{
		Type:        kind,
		GuildID:     f.guild,
		ChannelID:   f.channel,
		ChannelName: f.channelName,
		MessageID:   f.messageID,
		AuthorID:    f.author,
		AuthorName:  f.authorName,
		Content:     strings.Join(args, " "),
	}
	if ev.ChannelName == "" {
		ev.ChannelName = viper.GetString(channelKey)
	}
	if ev.MessageID == "" {
		ev.MessageID = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	if ev.AuthorName == "" {
		ev.AuthorName = ev.AuthorID
	}
	return ev
}

var postFlags, editFlags guildFlags

var postCmd = &cobra.Command{
	Use:   "post <text...>",
	Short: "Post a message in a guild channel",
	Long: `Post a message in a guild channel. Messages in the public channel are
forwarded to the moderators and classified; posted messages can later be
reported by link.

  modctl post --guild 100 --channel 200 --id 300 --author 9 "bleach cures covid"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendEvent(cmd.Context(), postFlags.event("message", "public_channel", args))
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <text...>",
	Short: "Edit a previously posted guild message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendEvent(cmd.Context(), editFlags.event("edit", "public_channel", args))
	},
}

func init() {
	postFlags.register(postCmd, "public_channel")
	editFlags.register(editCmd, "public_channel")
}

// ── mod ──────────────────────────────────────────────────────────────────────

var (
	modChannelID string
	modAuthor    string
)

var modCmd = &cobra.Command{
	Use:   "mod <guild-id> <verdict...>",
	Short: "Answer the report under review as a moderator",
	Long: `Send a message in the guild's moderator channel.

  modctl mod 100 yes
  modctl mod 100 unclear`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendEvent(cmd.Context(), client.Event{
			Type:        "message",
			GuildID:     args[0],
			ChannelID:   modChannelID,
			ChannelName: viper.GetString("mod_channel"),
			MessageID:   fmt.Sprintf("%d", time.Now().UnixNano()),
			AuthorID:    modAuthor,
			AuthorName:  modAuthor,
			Content:     strings.Join(args[1:], " "),
		})
	},
}

func init() {
	modCmd.Flags().StringVar(&modChannelID, "channel", "mod", "Moderator channel id")
	modCmd.Flags().StringVar(&modAuthor, "author", "moderator", "Moderator user id")
}

// ── queue / karma / outbox / audit ───────────────────────────────────────────

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List pending reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		reports, err := c.Queue(cmd.Context())
		if err != nil {
			return err
		}
		if outFormat == "json" {
			return printJSON(reports)
		}
		if len(reports) == 0 {
			fmt.Println("queue is empty")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TICKET\tREPORTER\tOFFENDER\tCATEGORY\tSPECIFIC\tHEAD")
		for _, r := range reports {
			head := ""
			if r.Head {
				head = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Ticket, r.Reporter, r.Offender, r.Category, r.Specific, head)
		}
		return w.Flush()
	},
}

var karmaCmd = &cobra.Command{
	Use:   "karma <user-id>",
	Short: "Show how many times a user has been reported",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		k, err := c.Karma(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outFormat == "json" {
			return printJSON(k)
		}
		fmt.Printf("User:      %s\n", k.User)
		fmt.Printf("Reports:   %d\n", k.Count)
		fmt.Printf("Threshold: %d (reached: %t)\n", k.Threshold, k.ThresholdReached)
		return nil
	},
}

var outboxAfter int64

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Print the bot's outbound messages and reactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		items, last, err := c.Outbox(cmd.Context(), outboxAfter)
		if err != nil {
			return err
		}
		if outFormat == "json" {
			return printJSON(items)
		}
		printItems(items)
		fmt.Printf("(last seq %d)\n", last)
		return nil
	},
}

func init() {
	outboxCmd.Flags().Int64Var(&outboxAfter, "after", 0, "Only show items with a sequence number greater than this")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show and verify the resolution audit log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		st, err := c.Audit(cmd.Context())
		if err != nil {
			return err
		}
		if outFormat == "json" {
			return printJSON(st)
		}
		fmt.Printf("Entries: %d\n", st.Entries)
		fmt.Printf("Root:    %s\n", st.Root)
		if st.Valid {
			fmt.Println("Chain:   valid")
		} else {
			fmt.Printf("Chain:   INVALID (%s)\n", st.Error)
		}
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the modctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modctl %s\n", version)
	},
}

// ── output ───────────────────────────────────────────────────────────────────

func sendEvent(ctx context.Context, ev client.Event) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	items, err := c.PostEvent(ctx, ev)
	if err != nil {
		return err
	}
	if outFormat == "json" {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("(no reply)")
		return nil
	}
	printItems(items)
	return nil
}

func printItems(items []client.OutboxItem) {
	for _, it := range items {
		fmt.Println(formatItem(it))
	}
}

func formatItem(it client.OutboxItem) string {
	if it.Kind == "reaction" {
		return fmt.Sprintf("#%d react %s (%s) on message %s", it.Seq, it.Emoji, it.Marker, it.MessageID)
	}
	return fmt.Sprintf("#%d [%s %s]\n%s", it.Seq, it.Surface.Kind, it.Surface.ID, it.Text)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
