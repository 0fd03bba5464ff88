package imagegen

import (
	"strings"

	"mixologue-backend/config"
	"mixologue-backend/internal/utils"

	"go.uber.org/zap"
)

// NewProviders builds the chain in IMAGE_PROVIDERS order. Unknown names are
// logged and left out.
func NewProviders(cfg *config.Config, store AssetSaver, log *zap.Logger) []Provider {
	if log == nil {
		log = zap.NewNop()
	}
	client := utils.NewHTTPClient(cfg.ImageProviderTimeout, log.Named("imagegen.http"))

	providers := make([]Provider, 0, len(cfg.ImageProviders))
	for _, name := range cfg.ImageProviders {
		switch strings.ToLower(name) {
		case "mistral":
			providers = append(providers, &MistralProvider{
				APIKey:  cfg.MistralAPIKey,
				BaseURL: cfg.MistralBaseURL,
				Model:   cfg.MistralImageModel,
				Client:  client,
				Store:   store,
			})
		case "openai":
			providers = append(providers, &OpenAIProvider{
				APIKey:  cfg.OpenAIImageAPIKey,
				BaseURL: cfg.OpenAIImageBaseURL,
				Model:   cfg.OpenAIImageModel,
				Size:    cfg.OpenAIImageSize,
				Client:  client,
				Store:   store,
			})
		case "jiekou":
			providers = append(providers, &JiekouProvider{
				APIKey:           cfg.JiekouAPIKey,
				SubmitURL:        cfg.JiekouImageURL,
				QueryURLTemplate: cfg.JiekouQueryURLTemplate,
				PollInterval:     cfg.JiekouPollInterval,
				Client:           client,
			})
		case "stablediffusion", "local":
			providers = append(providers, &StableDiffusionProvider{
				BaseURL: cfg.StableDiffusionURL,
				Client:  client,
				Store:   store,
			})
		default:
			log.Warn("Unknown image provider in IMAGE_PROVIDERS, ignoring", zap.String("provider", name))
		}
	}
	return providers
}
