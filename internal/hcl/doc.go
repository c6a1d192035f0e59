// Package hcl is the HCL implementation of network.Loader. It discovers
// network files, decodes them into the schema blocks and translates those
// blocks into the network model.
package hcl
