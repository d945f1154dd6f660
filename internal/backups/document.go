package backups

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one integration in a YAML import file.
type Document struct {
	Kind            string `yaml:"kind"`
	Name            string `yaml:"name"`
	BackupsToRetain any    `yaml:"backupsToRetain"`
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"objectPrefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UseIAM          bool   `yaml:"useIam"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseWorkloadID   bool   `yaml:"useWorkloadId"`
	ServiceAccount  string `yaml:"serviceAccount"`
}

// Form returns the document as form input so it goes through the same
// validation as the UI.
func (d Document) Form() Form {
	retain := ""
	if d.BackupsToRetain != nil {
		retain = strings.TrimSpace(fmt.Sprint(d.BackupsToRetain))
	}
	return Form{
		Name:            d.Name,
		BackupsToRetain: retain,
		Bucket:          d.Bucket,
		ObjectPrefix:    d.ObjectPrefix,
		Region:          d.Region,
		Endpoint:        d.Endpoint,
		UseIAM:          d.UseIAM,
		AccessKeyID:     d.AccessKeyID,
		SecretAccessKey: d.SecretAccessKey,
		UseWorkloadID:   d.UseWorkloadID,
		ServiceAccount:  d.ServiceAccount,
	}
}

// DecodeDocuments reads a stream of YAML documents separated by ---.
func DecodeDocuments(raw []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var docs []Document
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}

// ImportResult reports the outcome of one document.
type ImportResult struct {
	Index       int
	Kind        string
	Name        string
	Integration Integration
	Err         error
}

// ImportDocuments validates every document and stores the valid ones.
func (s *Service) ImportDocuments(ctx context.Context, docs []Document) []ImportResult {
	results := make([]ImportResult, 0, len(docs))
	for i, doc := range docs {
		res := ImportResult{Index: i + 1, Kind: strings.TrimSpace(doc.Kind), Name: strings.TrimSpace(doc.Name)}
		kind := NormalizeKind(doc.Kind)
		if kind == "" {
			res.Err = fmt.Errorf("%w: %q", ErrUnknownKind, doc.Kind)
			results = append(results, res)
			continue
		}
		cfg, errs := doc.Form().Config(kind, nil)
		if len(errs) > 0 {
			res.Err = errs
			results = append(results, res)
			continue
		}
		res.Integration, res.Err = s.Import(ctx, kind, cfg)
		results = append(results, res)
	}
	return results
}
