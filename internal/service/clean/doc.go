// Package clean tears down deployment state: the working directory, the
// produced artifact and leftover staging directories. Removals are
// independent and never fail the process.
package clean
