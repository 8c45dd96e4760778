// Package diagnostic collects problems found while projecting records:
// values dropped because they failed validation, link lookups that fell back
// to the link map, child rows whose parent was never projected.
//
// Warnings and infos never abort a run; commands print a summary so the
// operator can decide whether the output is usable. Error diagnostics stop
// the import before anything is uploaded.
package diagnostic
