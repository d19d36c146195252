// Command sealedsend resolves how mail to a set of recipients would be
// protected and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sealedsend "github.com/sealedsend/client-go"
	"github.com/sealedsend/client-go/internal/config"
	"github.com/sealedsend/client-go/internal/crypto"
	"github.com/sealedsend/client-go/internal/mimebody"
)

// PassphraseEnv holds the passphrase of the sender key.
const PassphraseEnv = "SEALEDSEND_PASSPHRASE"

// Config holds the streams the command reads and writes.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config bound to the process streams.
func DefaultConfig() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// PreferenceOutput is the JSON form of a resolved preference.
type PreferenceOutput struct {
	Email                      string `json:"email"`
	Encrypt                    bool   `json:"encrypt"`
	Sign                       bool   `json:"sign"`
	Scheme                     string `json:"scheme"`
	MIMEType                   string `json:"mimeType"`
	HasEncryptionKey           bool   `json:"hasEncryptionKey"`
	IsEncryptionKeyPinned      bool   `json:"isEncryptionKeyPinned"`
	HasPinnedKeys              bool   `json:"hasPinnedKeys"`
	IsContactSignatureVerified bool   `json:"isContactSignatureVerified"`
	IsOwnAddress               bool   `json:"isOwnAddress"`
}

// KeyInfoOutput is the JSON form of key information.
type KeyInfoOutput struct {
	Fingerprint string `json:"fingerprint"`
	IsValid     bool   `json:"isValid"`
	IsExpired   bool   `json:"isExpired"`
	CanEncrypt  bool   `json:"canEncrypt"`
	Usable      bool   `json:"usable"`
}

type resolveFlags struct {
	configPath      string
	keyPath         string
	contactKeyPaths []string
	sender          string
	verbose         bool
}

func newRootCommand(cfg Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "sealedsend",
		Short:         "Inspect per-recipient send preferences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	root.AddCommand(newResolveCommand(cfg), newKeyInfoCommand(cfg), newPlaintextCommand(cfg))
	return root
}

func newResolveCommand(cfg Config) *cobra.Command {
	var flags resolveFlags

	command := &cobra.Command{
		Use:   "resolve email...",
		Short: "Resolve send preferences for the given recipients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return resolve(command.Context(), cfg, flags, args)
		},
	}
	command.Flags().StringVar(&flags.configPath, "config", config.DefaultPath(), "Path to the config file")
	command.Flags().StringVar(&flags.keyPath, "key", "", "Armored private key of the sending address")
	command.Flags().StringVar(&flags.sender, "sender", "", "Sending address")
	command.Flags().StringSliceVar(&flags.contactKeyPaths, "contact-key", nil, "Armored public user key that signs contact cards (repeatable)")
	command.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log resolution details to stderr")
	_ = command.MarkFlagRequired("key")
	_ = command.MarkFlagRequired("sender")
	return command
}

func newKeyInfoCommand(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "keyinfo file",
		Short: "Show what an armored public key can be used for",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			info, err := crypto.DeriveKeyInfo(string(data))
			if err != nil {
				return err
			}
			return writeJSON(cfg.Stdout, KeyInfoOutput{
				Fingerprint: info.Fingerprint,
				IsValid:     info.IsValid,
				IsExpired:   info.IsExpired,
				CanEncrypt:  info.CanEncrypt,
				Usable:      info.Usable(),
			})
		},
	}
}

func newPlaintextCommand(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "plaintext",
		Short: "Convert an HTML body on stdin to the plaintext sent to text/plain recipients",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, args []string) error {
			data, err := io.ReadAll(cfg.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text, err := mimebody.HTMLToPlaintext(string(data))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cfg.Stdout, text)
			return err
		},
	}
}

func run(args []string, cfg Config) error {
	root := newRootCommand(cfg)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func resolve(ctx context.Context, cfg Config, flags resolveFlags, emails []string) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	armored, err := os.ReadFile(flags.keyPath)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	var passphrase []byte
	if p := os.Getenv(PassphraseEnv); p != "" {
		passphrase = []byte(p)
	}
	contactKeys := make([]string, 0, len(flags.contactKeyPaths))
	for _, path := range flags.contactKeyPaths {
		key, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read contact key: %w", err)
		}
		contactKeys = append(contactKeys, string(key))
	}
	cr, err := sealedsend.NewAddressCrypto(flags.sender, string(armored), passphrase, contactKeys...)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(cfg.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if flags.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	opts := []sealedsend.Option{
		sealedsend.WithSession(conf.Session.UID, conf.Session.AccessToken),
		sealedsend.WithBaseURL(conf.BaseURL),
		sealedsend.WithTimeout(conf.Timeout),
		sealedsend.WithRetries(conf.Retries),
		sealedsend.WithWorkers(conf.Workers),
		sealedsend.WithLogger(logger),
		sealedsend.WithMailSettings(sealedsend.StaticMailSettings{
			DefaultSign:      conf.Mail.DefaultSign,
			DefaultPGPScheme: sealedsend.PGPScheme(conf.Mail.PGPScheme),
			AttachPublicKey:  conf.Mail.AttachPublicKey,
			AutoSaveContacts: conf.Mail.AutoSaveContacts,
		}),
	}
	if conf.Store.Path != "" {
		opts = append(opts, sealedsend.WithContactStorePath(conf.Store.Path))
	}

	client, err := sealedsend.New(opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	prefs, err := client.FetchSendPreferences(ctx, cr, emails)
	if err != nil {
		return err
	}

	output := struct {
		Preferences []PreferenceOutput `json:"preferences"`
	}{
		Preferences: make([]PreferenceOutput, 0, len(prefs)),
	}
	seen := make(map[string]struct{}, len(prefs))
	for _, email := range emails {
		pref, ok := prefs[strings.TrimSpace(email)]
		if !ok {
			continue
		}
		if _, dup := seen[pref.Email]; dup {
			continue
		}
		seen[pref.Email] = struct{}{}
		output.Preferences = append(output.Preferences, PreferenceOutput{
			Email:                      pref.Email,
			Encrypt:                    pref.Encrypt,
			Sign:                       pref.Sign,
			Scheme:                     pref.Scheme.String(),
			MIMEType:                   string(pref.MIMEType),
			HasEncryptionKey:           pref.HasEncryptionKey(),
			IsEncryptionKeyPinned:      pref.IsEncryptionKeyPinned,
			HasPinnedKeys:              pref.HasPinnedKeys,
			IsContactSignatureVerified: pref.IsContactSignatureVerified,
			IsOwnAddress:               pref.IsOwnAddress,
		})
	}

	return writeJSON(cfg.Stdout, output)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
