package config

import (
	"github.com/olivere/elastic/v7"
)

// SetupElasticSearch connects to a single Elasticsearch node. Sniffing is
// off so the client also works against a node behind a proxy or in docker.
func SetupElasticSearch(url string) (*elastic.Client, error) {
	return elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
	)
}
