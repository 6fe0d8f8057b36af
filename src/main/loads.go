package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"example.com/average-calculator/src/category"
	"example.com/average-calculator/src/source"
)

type sources_config struct {
	Extract    string            `yaml:"extract"`
	Token      string            `yaml:"token"`
	Categories map[string]string `yaml:"categories"`
}

func default_sources() sources_config {
	return sources_config{
		Extract: source.DefaultExtract,
		Categories: map[string]string{
			string(category.Prime):     "http://20.244.56.144/evaluation-service/primes",
			string(category.Fibonacci): "http://20.244.56.144/evaluation-service/fibo",
			string(category.Even):      "http://20.244.56.144/evaluation-service/even",
			string(category.Random):    "http://20.244.56.144/evaluation-service/rand",
		},
	}
}

// load_sources reads the sources file over the defaults. Categories missing
// from the file keep their default url.
func load_sources(path string) (sources_config, error) {
	config := default_sources()
	if path == "" {
		return config, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "read %s", path)
	}

	var file sources_config
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return config, errors.Wrapf(err, "parse %s", path)
	}

	if file.Extract != "" {
		config.Extract = file.Extract
	}
	if file.Token != "" {
		config.Token = file.Token
	}
	for id, url := range file.Categories {
		if _, err := category.Parse(id); err != nil {
			return config, errors.Wrapf(err, "%s", path)
		}
		config.Categories[id] = url
	}

	return config, nil
}

func (config sources_config) urls() map[category.Category]string {
	urls := make(map[category.Category]string, len(config.Categories))
	for id, url := range config.Categories {
		urls[category.Category(id)] = url
	}
	return urls
}

func new_source(opt opt) (source.NumberSource, error) {
	if opt.usemock {
		return source.WithTimeout(source.NewMockSource(opt.mockseed), source.FetchTimeout), nil
	}

	config, err := load_sources(opt.sourcesfile)
	if err != nil {
		return nil, errors.Wrap(err, "load sources")
	}
	if opt.authtoken != "" {
		config.Token = opt.authtoken
	}

	extract, err := source.CompileExtract(config.Extract)
	if err != nil {
		return nil, err
	}

	http_source := source.NewHTTPSource(config.urls(), config.Token, extract, source.FetchTimeout)
	return source.WithTimeout(http_source, source.FetchTimeout), nil
}
