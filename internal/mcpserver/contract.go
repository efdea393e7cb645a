package mcpserver

// ManifestFormatContract describes the manifest pointer file format read by
// the manifest resolver, for clients that create pointer files themselves.
const ManifestFormatContract = `# Recents Manifest Pointer Format

When the service runs with ` + "`source.resolver: manifest`" + `, every pointer file in the
watched directory is a small YAML document naming the item it points at.

## Structure

` + "```" + `yaml
---
target: C:\Users\me\Documents\report.docx   # REQUIRED - absolute path or \\server\share\path
name: Quarterly report                     # OPTIONAL - display name
description: Numbers for Q3                # OPTIONAL
arguments: --readonly                      # OPTIONAL
icon: C:\icons\doc.ico                     # OPTIONAL
---
` + "```" + `

## Rules

1. The ` + "`---`" + ` fences are optional.
2. A file that is not a YAML mapping is read as a plain path: the first non-empty line
   that does not start with ` + "`#`" + ` is the target.
3. Without ` + "`name`" + ` the display name is the pointer file name without its extension.
4. Pointer file names must match ` + "`source.pattern`" + ` (default ` + "`*.lnk`" + `).
5. The file's modification time orders the list: newest first.
6. Local targets that no longer exist are skipped. Network targets are listed without
   being checked.
`
