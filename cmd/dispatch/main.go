// Command dispatch fans a prompt out to every provider in a YAML config
// file and prints per-provider results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"glot-server/internal/config"
	"glot-server/internal/fanout"
	"glot-server/internal/infrastructure/logger"
)

func main() {
	var (
		providersFile = flag.String("providers", config.DefaultProviderConfigFile, "path to the provider config file")
		systemPrompt  = flag.String("prompt", "", "system prompt to send ahead of the text")
		stream        = flag.Bool("stream", true, "request streamed responses and print progress")
		keepPartial   = flag.Bool("keep-partial", false, "keep partially streamed text when interrupted")
	)
	flag.Parse()

	log := logger.GetLogger()

	text := flag.Arg(0)
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: dispatch [flags] <text>")
		os.Exit(2)
	}

	providers, err := config.LoadProviderConfigs(*providersFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load providers")
	}

	opts := []fanout.Option{fanout.WithPartialInterval(100 * time.Millisecond)}
	if *keepPartial {
		opts = append(opts, fanout.WithKeepPartialOnCancel())
	}
	orchestrator := fanout.NewOrchestrator(opts...)

	var onPartial fanout.PartialFunc
	if *stream {
		onPartial = func(providerID, accumulated string) {
			log.Info().Str("provider", providerID).Int("chars", len(accumulated)).Msg("progress")
		}
	}

	results := orchestrator.Dispatch(context.Background(), text, fanout.Action{Prompt: *systemPrompt}, providers, onPartial)

	for _, result := range results {
		if !result.Succeeded() {
			fmt.Printf("--- %s (failed after %s): %v\n", result.ProviderID, result.Duration.Round(time.Millisecond), result.Err)
			continue
		}
		suffix := ""
		if result.Incomplete {
			suffix = " [incomplete]"
		}
		fmt.Printf("--- %s (%s)%s\n%s\n", result.ProviderID, result.Duration.Round(time.Millisecond), suffix, result.Text)
	}
}
