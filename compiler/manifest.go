package compiler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/translator"
	"gopkg.in/yaml.v3"
)

type (
	// Manifest describes a compiled program and its artifacts.
	Manifest struct {
		Version        string         `yaml:"version"`
		Description    string         `yaml:"description"`
		Name           string         `yaml:"name"`
		RuntimeVersion string         `yaml:"runtimeVersion"`
		CreateTime     *time.Time     `yaml:"createTime,omitempty"`
		HasSharedData  bool           `yaml:"hasSharedData"`
		MaxLevel       int            `yaml:"maxLevel"`
		Artifacts      []Artifact     `yaml:"artifacts"`
		Registrations  []Registration `yaml:"registrations,omitempty"`
	}

	// Artifact is a generated file and its content hash.
	Artifact struct {
		Name string `yaml:"name"`
		Hash string `yaml:"hash"`
		Size int    `yaml:"size"`
	}

	// Registration is a function a side offers to the runtime.
	Registration struct {
		Function   string         `yaml:"function"`
		Language   jam.Language   `yaml:"language"`
		Annotation jam.Annotation `yaml:"annotation"`
		Tier       string         `yaml:"tier,omitempty"`
		Condition  string         `yaml:"condition,omitempty"`
		Shape      string         `yaml:"shape"`
		SideEffect bool           `yaml:"sideEffect"`
	}
)

const manifestVersion = "1.0"

func (c *Compiler) manifest(result *Result, glue *translator.Glue) (*Manifest, error) {
	ret := &Manifest{
		Version:        manifestVersion,
		Description:    "JAMScript executable file",
		Name:           c.name,
		RuntimeVersion: c.cfg.Runtime(),
		HasSharedData:  result.HasSharedData,
		MaxLevel:       result.MaxLevel,
	}
	if c.now != nil {
		now := c.now().UTC()
		ret.CreateTime = &now
	}
	files := []struct {
		name string
		data string
	}{
		{CFile, result.C},
		{JSFile, result.Preamble + result.JS},
		{AnnotatedFile, result.AnnotatedJS},
		{StartFile, result.Start},
	}
	for _, file := range files {
		hash, err := jam.HashHex([]byte(file.data))
		if err != nil {
			return nil, err
		}
		ret.Artifacts = append(ret.Artifacts, Artifact{Name: file.name, Hash: hash, Size: len(file.data)})
	}
	for _, lang := range jam.Languages {
		for _, entry := range glue.Entries(lang) {
			ret.Registrations = append(ret.Registrations, Registration{
				Function:   entry.Function,
				Language:   entry.Language,
				Annotation: entry.Annotation,
				Tier:       entry.Tier,
				Condition:  entry.Condition,
				Shape:      entry.Shape(),
				SideEffect: entry.SideEffect,
			})
		}
	}
	sort.SliceStable(ret.Registrations, func(i, j int) bool {
		return ret.Registrations[i].Function < ret.Registrations[j].Function
	})
	return ret, nil
}

// Text renders the MANIFEST.txt key = value form.
func (m *Manifest) Text() string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "VERSION = %s\n", m.Version)
	fmt.Fprintf(&builder, "DESCRIPTION = %s\n", m.Description)
	fmt.Fprintf(&builder, "NAME = %s\n", m.Name)
	fmt.Fprintf(&builder, "RUNTIME-VERSION = %s\n", m.RuntimeVersion)
	if m.CreateTime != nil {
		fmt.Fprintf(&builder, "CREATE-TIME = %d\n", m.CreateTime.UnixMilli())
	}
	return builder.String()
}

// YAML renders the full manifest.
func (m *Manifest) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}
