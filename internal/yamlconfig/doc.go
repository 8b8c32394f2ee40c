// Package yamlconfig provides a YAML implementation of the config.Loader
// interface. It produces the same model as the HCL loader; option values are
// bridged to cty through their JSON form so both formats share one Converter.
package yamlconfig
