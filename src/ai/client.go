// backend/src/ai/client.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/username/financetrackr/backend/src/logger"
)

// ErrGateway covers every failure to obtain a completion from Bedrock,
// including a response that carries no text.
var ErrGateway = errors.New("ai gateway request failed")

// Config carries what the client needs to reach Bedrock.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ModelID         string
}

// Client wraps the Bedrock runtime Converse API. Build it once at startup;
// it is safe for concurrent use.
type Client struct {
	bedrock *bedrockruntime.Client
	modelID string
}

// NewClient resolves an AWS configuration from static credentials and an
// explicit region and returns a ready Converse client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &Client{
		bedrock: bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// Converse sends the prompt as a single user message and returns the first
// text content block of the reply. One blocking round trip, no streaming,
// no retries beyond what the SDK does on its own.
func (c *Client) Converse(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContext(ctx)
	log.Info("Sending prompt to Bedrock", "model", c.modelID, "promptChars", len(prompt))
	start := time.Now()

	out, err := c.bedrock.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
	})
	if err != nil {
		log.Error("Bedrock call failed", "model", c.modelID, "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if out.Usage != nil {
		log.Info("Bedrock response received",
			"elapsed_ms", time.Since(start).Milliseconds(),
			"inputTokens", aws.ToInt32(out.Usage.InputTokens),
			"outputTokens", aws.ToInt32(out.Usage.OutputTokens))
	} else {
		log.Info("Bedrock response received", "elapsed_ms", time.Since(start).Milliseconds())
	}

	completion := firstTextBlock(out.Output)
	if completion == "" {
		return "", fmt.Errorf("%w: empty completion from model %s", ErrGateway, c.modelID)
	}
	return completion, nil
}

// firstTextBlock walks the response message and returns its first text-typed
// content block, or "" when none exists.
func firstTextBlock(out types.ConverseOutput) string {
	msg, ok := out.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			return t.Value
		}
	}
	return ""
}
