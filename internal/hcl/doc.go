// Package hcl provides the HCL implementation of the config.Loader interface
// and the cty-based config.Converter shared by every configuration format.
package hcl
