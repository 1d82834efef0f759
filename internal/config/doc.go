// Package config defines the deployment settings used by every pipeline
// stage and provides helpers to load, validate and save them in YAML format.
//
// The Config type names the application being packaged, the project layout
// (deploy, asset and staging directories) and the data assets fetched in
// download mode. All fields have working defaults: the pipeline runs
// without a settings file.
package config
