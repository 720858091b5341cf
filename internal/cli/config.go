package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/phonevalidator/internal/archive"
	"codeberg.org/snonux/phonevalidator/internal/classify"
	"codeberg.org/snonux/phonevalidator/internal/models"
	"codeberg.org/snonux/phonevalidator/internal/processor"
	"codeberg.org/snonux/phonevalidator/internal/telephony"
	"codeberg.org/snonux/phonevalidator/internal/transcribe"
)

// TelephonyConfig builds the Twilio configuration from credentials, flags and config
func TelephonyConfig() *telephony.Config {
	config := telephony.DefaultConfig()
	config.AccountSID, config.AuthToken, config.FromNumber = GetTwilioCredentials()

	if seconds := viper.GetInt("calls.record_seconds"); seconds > 0 {
		config.RecordSeconds = seconds
	}
	if url := viper.GetString("twilio.twiml_url"); url != "" {
		config.TwiMLURL = url
	}
	if base := viper.GetString("twilio.api_base_url"); base != "" {
		config.APIBaseURL = base
	}
	if attempts := viper.GetInt("twilio.poll_attempts"); attempts > 0 {
		config.PollAttempts = attempts
	}

	return config
}

// BreakerSettings reads the circuit breaker settings
func BreakerSettings() telephony.BreakerSettings {
	settings := telephony.DefaultBreakerSettings()
	if n := viper.GetUint32("breaker.max_failures"); n > 0 {
		settings.MaxFailures = n
	}
	if d := durationSetting("breaker.open_timeout"); d > 0 {
		settings.OpenTimeout = d
	}
	return settings
}

// TranscribeConfig builds the configuration for provider. The --model flag only
// applies to the primary provider.
func TranscribeConfig(provider string, primary bool) *transcribe.Config {
	config := transcribe.DefaultProviderConfig()
	config.Provider = provider
	config.OpenAIKey = GetOpenAIKey()
	config.GeminiKey = GetGeminiKey()
	config.OpenAIBaseURL = viper.GetString("transcribe.base_url")
	config.GeminiBaseURL = viper.GetString("transcribe.gemini_base_url")
	config.EnableCache = viper.GetBool("transcribe.cache")

	if language := viper.GetString("transcribe.language"); language != "" {
		config.Language = language
	}
	if dir := viper.GetString("transcribe.cache_dir"); dir != "" {
		config.CacheDir = dir
	}
	if model := viper.GetString("transcribe.gemini_model"); model != "" {
		config.GeminiModel = model
	}

	if model := viper.GetString("transcribe.model"); primary && model != "" {
		switch provider {
		case "gemini":
			config.GeminiModel = model
		default:
			config.OpenAIModel = model
		}
	}

	return config
}

// S3Config reads the optional recordings bucket
func S3Config() archive.S3Config {
	return archive.S3Config{
		Endpoint:  viper.GetString("s3.endpoint"),
		AccessKey: envOrConfig("AWS_ACCESS_KEY_ID", "s3.access_key"),
		SecretKey: envOrConfig("AWS_SECRET_ACCESS_KEY", "s3.secret_key"),
		Bucket:    viper.GetString("s3.bucket"),
		Region:    viper.GetString("s3.region"),
		Prefix:    viper.GetString("s3.prefix"),
		Insecure:  viper.GetBool("s3.insecure"),
	}
}

// NewClassifier builds the classifier from classify.phrases and classify.min_length
func NewClassifier() *classify.Classifier {
	minLength := classify.DefaultMinLength
	if viper.IsSet("classify.min_length") {
		minLength = viper.GetInt("classify.min_length")
	}
	phrases := viper.GetStringSlice("classify.phrases")
	if len(phrases) == 0 {
		phrases = nil
	}
	return classify.NewClassifier(phrases, minLength)
}

// ProcessorOptions collects pacing and file handling options
func ProcessorOptions(flags *Flags) processor.Options {
	options := processor.DefaultOptions()

	options.Delay = durationSetting("calls.delay")
	if n := viper.GetInt("calls.concurrency"); n > 0 {
		options.Concurrency = n
	}
	if dir := viper.GetString("recordings.dir"); dir != "" {
		options.RecordingsDir = dir
	}
	if n := viper.GetInt("output.snippet_length"); n > 0 {
		options.SnippetLength = n
	}
	options.KeepRecordings = viper.GetBool("recordings.keep")
	options.SkipValidated = viper.GetBool("history.skip_validated")
	options.DryRun = flags.DryRun

	return options
}

// HistoryPath returns the history database path, empty when disabled
func HistoryPath() string {
	return viper.GetString("history.path")
}

// LogFile returns the log file path
func LogFile() string {
	return viper.GetString("log.file")
}

// TranscriberNames returns the primary and fallback transcription providers
func TranscriberNames() (primary, fallback string) {
	primary = viper.GetString("transcribe.provider")
	if primary == "" {
		primary = transcribe.DefaultProviderConfig().Provider
	}
	fallback = viper.GetString("transcribe.fallback")
	if fallback == primary {
		fallback = ""
	}
	return primary, fallback
}

// ValidateCredentials reports every credential the run needs and lacks in one
// error: the Twilio account and the key of the primary transcriber.
func ValidateCredentials() error {
	missing := TelephonyConfig().MissingCredentials()

	primary, _ := TranscriberNames()
	switch primary {
	case "openai":
		if GetOpenAIKey() == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if GetGeminiKey() == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewModelLister builds the model lister against transcribe.base_url when set
func NewModelLister() *models.Lister {
	if base := viper.GetString("transcribe.base_url"); base != "" {
		return models.NewListerWithBaseURL(GetOpenAIKey(), base)
	}
	return models.NewLister(GetOpenAIKey())
}

// durationSetting reads a duration key. Bare numbers are seconds, so
// "delay: 2" in YAML means two seconds rather than two nanoseconds.
func durationSetting(key string) time.Duration {
	switch v := viper.Get(key).(type) {
	case nil:
		return 0
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if seconds, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return viper.GetDuration(key)
}
