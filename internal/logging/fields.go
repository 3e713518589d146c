package logging

// Structured log field names.
const (
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"
	FieldSchema     = "schema"

	FieldFix    = "fix"
	FieldDryRun = "dry_run"
	FieldJobs   = "jobs"
	FieldFormat = "format"

	FieldCode        = "code"
	FieldSeverity    = "severity"
	FieldFixable     = "fixable"
	FieldDescription = "description"
	FieldOffset      = "offset"
	FieldPasses      = "passes"
	FieldEdits       = "edits"
	FieldSkipped     = "skipped"
	FieldBackup      = "backup"

	FieldFilesDiscovered = "files_discovered"
	FieldFilesProcessed  = "files_processed"
	FieldFilesWithIssues = "files_with_issues"
	FieldFilesModified   = "files_modified"
	FieldDiagnostics     = "diagnostics"

	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
