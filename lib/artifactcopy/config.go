// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package artifactcopy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// shapefileSuffixes are the sidecar extensions copied for every
// shapefile base name. A shapefile is only usable with all four.
var shapefileSuffixes = []string{".shp", ".shx", ".dbf", ".prj"}

// Config is the copier configuration: where each run set lives and
// which files to pull out of each run. It is data, not code, so
// adding a file to the cross-scenario set is a YAML edit:
//
//	roots:
//	  IP: /models/ip-runs
//	  BP: /models/bp-runs
//	file_sets:
//	  - source: OUTPUT/core_summaries
//	    dest: core_summaries
//	    files: [ActiveTransport.csv, VehicleMilesTraveled.csv]
//	  - source: OUTPUT/shapefile
//	    dest: shapefile
//	    shapefiles: [network_links]
type Config struct {
	// Roots maps a manifest run_set to the directory holding that
	// set's run directories.
	Roots map[string]string `yaml:"roots"`

	// FileSets lists the file groups to copy from every run.
	FileSets []FileSet `yaml:"file_sets"`
}

// FileSet is one group of files sharing a source subdirectory inside
// the run and a destination subdirectory in the copy target.
type FileSet struct {
	// Source is the subdirectory inside the run directory, e.g.
	// "OUTPUT/core_summaries".
	Source string `yaml:"source"`

	// Dest is the subdirectory created under the copy destination.
	Dest string `yaml:"dest"`

	// Files are plain file names copied as-is (plus the run
	// qualifier).
	Files []string `yaml:"files,omitempty"`

	// Shapefiles are extensionless base names expanded to the four
	// shapefile sidecar files each.
	Shapefiles []string `yaml:"shapefiles,omitempty"`
}

// fileNames returns every concrete file name in the set, with
// shapefile bases expanded.
func (s FileSet) fileNames() []string {
	names := make([]string, 0, len(s.Files)+len(s.Shapefiles)*len(shapefileSuffixes))
	names = append(names, s.Files...)
	for _, base := range s.Shapefiles {
		for _, suffix := range shapefileSuffixes {
			names = append(names, base+suffix)
		}
	}
	return names
}

// LoadConfig reads and validates the copier configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading copy config: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing copy config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("copy config %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks structural requirements on the configuration.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("no run-set roots declared")
	}
	for runSet, root := range c.Roots {
		if root == "" {
			return fmt.Errorf("run set %q has an empty root", runSet)
		}
	}
	if len(c.FileSets) == 0 {
		return fmt.Errorf("no file sets declared")
	}
	for index, set := range c.FileSets {
		if set.Dest == "" {
			return fmt.Errorf("file set %d: dest is required", index)
		}
		if strings.Contains(set.Dest, "..") {
			return fmt.Errorf("file set %d: dest %q must stay inside the destination", index, set.Dest)
		}
		if len(set.Files) == 0 && len(set.Shapefiles) == 0 {
			return fmt.Errorf("file set %d (%s): no files declared", index, set.Dest)
		}
	}
	return nil
}
