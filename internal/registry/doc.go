// Package registry supplies the known developer-tool registry that audits are
// reconciled against.
//
// A built-in default registry ships with the application; deployments override
// it with a YAML file. The registry is configuration data and is treated as
// read-only once loaded.
package registry
