package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/phonevalidator/internal"
)

// DefaultBatchFile is read when neither a phone number nor --batch is given
const DefaultBatchFile = "phone_numbers.csv"

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phonevalidator [phone]",
		Short: "Phone number validator using calls and speech recognition",
		Long: `phonevalidator checks whether phone numbers are in service by calling them.

Each number is dialed through Twilio, the first seconds of the call are
recorded and transcribed, and the transcript is matched against carrier
"number not in service" announcements. Verdicts are written to a CSV file.

Examples:
  phonevalidator                             # Validate numbers from phone_numbers.csv
  phonevalidator +380501234567               # Validate a single number
  phonevalidator --batch numbers.csv -o out.csv
  phonevalidator --batch numbers.csv --dry-run`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.phonevalidator.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.BatchFile, "batch", "b", "", "CSV file with phone numbers (default "+DefaultBatchFile+")")
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Results CSV (default validation_results_<timestamp>.csv)")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List OpenAI transcription models for the current API key")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Read and check the numbers without calling them")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Debug logging, also written to stderr")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", flags.LogFile, "Log file")
	cmd.Flags().BoolVar(&flags.ClearCache, "clear-cache", false, "Delete cached transcripts and exit")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the recordings directory to archive/ and exit")

	// Call flags
	cmd.Flags().DurationVar(&flags.Delay, "delay", flags.Delay, "Minimum time between two call starts")
	cmd.Flags().IntVar(&flags.RecordSeconds, "record-seconds", flags.RecordSeconds, "Seconds of each call to record")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", flags.Concurrency, "Calls in flight at once")

	// Transcription flags
	cmd.Flags().StringVar(&flags.Transcriber, "transcriber", flags.Transcriber, "Speech-to-text provider: openai or gemini")
	cmd.Flags().StringVar(&flags.Fallback, "fallback", "", "Provider to use when the transcriber fails: openai or gemini")
	cmd.Flags().StringVar(&flags.Language, "language", flags.Language, "Language of the carrier announcements (ISO-639-1)")
	cmd.Flags().StringVar(&flags.Model, "model", "", "Transcription model (default whisper-1 or gemini-2.0-flash)")

	// Recording and history flags
	cmd.Flags().StringVar(&flags.RecordingsDir, "recordings-dir", flags.RecordingsDir, "Directory for downloaded recordings")
	cmd.Flags().BoolVar(&flags.KeepRecordings, "keep-recordings", false, "Keep recordings after transcription")
	cmd.Flags().StringVar(&flags.HistoryPath, "history", "", "SQLite file remembering verdicts across runs")
	cmd.Flags().BoolVar(&flags.SkipValidated, "skip-validated", false, "Skip numbers with a verdict in the history")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("calls.delay", cmd.Flags().Lookup("delay"))
	viper.BindPFlag("calls.record_seconds", cmd.Flags().Lookup("record-seconds"))
	viper.BindPFlag("calls.concurrency", cmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("transcribe.provider", cmd.Flags().Lookup("transcriber"))
	viper.BindPFlag("transcribe.fallback", cmd.Flags().Lookup("fallback"))
	viper.BindPFlag("transcribe.language", cmd.Flags().Lookup("language"))
	viper.BindPFlag("transcribe.model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("recordings.dir", cmd.Flags().Lookup("recordings-dir"))
	viper.BindPFlag("recordings.keep", cmd.Flags().Lookup("keep-recordings"))
	viper.BindPFlag("history.path", cmd.Flags().Lookup("history"))
	viper.BindPFlag("history.skip_validated", cmd.Flags().Lookup("skip-validated"))
	viper.BindPFlag("log.file", cmd.Flags().Lookup("log-file"))
}

// InitConfig loads .env, then the config file and PHONEVALIDATOR_ environment variables
func InitConfig(cfgFile string) {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".phonevalidator" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".phonevalidator")
	}

	// Environment variables
	viper.SetEnvPrefix("PHONEVALIDATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// envOrConfig returns the environment variable when set, otherwise the config key
func envOrConfig(env, key string) string {
	if value := os.Getenv(env); value != "" {
		return value
	}
	return viper.GetString(key)
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	return envOrConfig("OPENAI_API_KEY", "transcribe.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	return envOrConfig("GEMINI_API_KEY", "transcribe.gemini_key")
}

// GetTwilioCredentials retrieves account SID, auth token and caller number
func GetTwilioCredentials() (accountSID, authToken, fromNumber string) {
	return envOrConfig("TWILIO_ACCOUNT_SID", "twilio.account_sid"),
		envOrConfig("TWILIO_AUTH_TOKEN", "twilio.auth_token"),
		envOrConfig("TWILIO_PHONE_NUMBER", "twilio.phone_number")
}
