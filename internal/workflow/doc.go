// Package workflow executes declarative fork maintenance pipelines loaded
// from YAML, mirroring the step list a hosted CI workflow file would run.
package workflow
