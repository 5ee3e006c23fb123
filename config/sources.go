package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"movie-notifier/models"
)

// defaultSources is the built-in catalog used when no sources file is
// present. The order here is the order sources are scanned in.
func defaultSources() []models.Source {
	return []models.Source{
		{Name: "English Movies", URL: "https://eg1.tuktuksu.cfd/category/movies-2/%D8%A7%D9%81%D9%84%D8%A7%D9%85-%D8%A7%D8%AC%D9%86%D8%A8%D9%8A/"},
		{Name: "Hindi Movies", URL: "https://eg1.tuktuksu.cfd/category/movies-2/%d8%a7%d9%81%d9%84%d8%a7%d9%85-%d9%87%d9%86%d8%af%d9%89/"},
		{Name: "Asian Movies", URL: "https://eg1.tuktuksu.cfd/category/movies-2/%d8%a7%d9%81%d9%84%d8%a7%d9%85-%d8%a7%d8%b3%d9%8a%d9%88%d9%8a/"},
	}
}

// LoadSources reads the operator-editable source catalog. The file is a
// YAML list so catalog order is preserved; scanning happens in that
// order. When path is empty a sources.yaml in the working directory is
// used, and the built-in catalog is the fallback when no file exists.
func LoadSources(path string) ([]models.Source, error) {
	v := viper.New()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("sources file %q does not exist", path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sources")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return defaultSources(), nil
		}
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var catalog struct {
		Sources []models.Source `mapstructure:"sources"`
	}
	if err := v.Unmarshal(&catalog); err != nil {
		return nil, fmt.Errorf("unmarshal sources file: %w", err)
	}

	if len(catalog.Sources) == 0 {
		return defaultSources(), nil
	}

	for i, src := range catalog.Sources {
		if src.Name == "" || src.URL == "" {
			return nil, fmt.Errorf("source entry %d is missing a name or url", i)
		}
	}

	return catalog.Sources, nil
}
