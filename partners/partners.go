package partners

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Registration pairs a partner's API key with the site identity it may open
// login sessions for. Registrations are provisioned out of band and are
// read-only to the relay.
type Registration struct {
	PartnerKey   string `yaml:"partnerKey" json:"partnerKey"`
	SiteIdentity string `yaml:"siteIdentity" json:"siteIdentity"`
	Name         string `yaml:"name" json:"name"`
}

type registryFile struct {
	Partners []Registration `yaml:"partners"`
}

// LoadFile reads a YAML partner registry:
//
//	partners:
//	  - partnerKey: abc
//	    siteIdentity: example.com
//	    name: Example Site
func LoadFile(path string) ([]Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[partners.LoadFile] ReadFile")
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "[partners.LoadFile] yaml.Unmarshal")
	}

	for _, reg := range file.Partners {
		if reg.PartnerKey == "" || reg.SiteIdentity == "" {
			return nil, errors.Errorf("[partners.LoadFile] registration %q missing partnerKey or siteIdentity", reg.Name)
		}
	}
	return file.Partners, nil
}
