package mcpserver

// FrontmatterContract describes the frontmatter fields that drive card
// rendering. LLM consumers should follow it when creating or editing notes.
const FrontmatterContract = `# Cardbase Frontmatter Contract

Every Markdown note becomes one card in the grid. The frontmatter fields
below control how the card renders.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to the first H1, then the filename
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
draft: true                         # OPTIONAL – drafts can be filtered out of the grid
image: attachments/cover.png        # OPTIONAL – cover image (vault path or https:// URL)
description: Short summary text     # OPTIONAL – replaces the body-derived preview snippet
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use ![[image.png]] or ![alt](attachments/image.png) to embed attachments.
` + "```" + `

## Rules

1. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
2. **Draft flag**: ` + "`" + `draft: true` + "`" + ` marks the note as unpublished. Publishing
   removes the key entirely; never write ` + "`" + `draft: false` + "`" + `.
3. **Cover image**: the first of the configured image properties
   (` + "`" + `image` + "`" + `, ` + "`" + `cover` + "`" + `, ` + "`" + `banner` + "`" + ` by default) that resolves wins; otherwise the
   first image embedded in the body is used.
4. **Preview text**: derived from the body with all Markdown syntax stripped,
   truncated to 500 characters — unless a ` + "`" + `description` + "`" + ` property is present.
5. **Index notes**: a note named after the configured index filename (default
   ` + "`" + `index` + "`" + `) represents its whole folder; deleting it can delete the folder.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.

## Attachments

- Upload via the ` + "`" + `upload_attachment` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + `
  field ready to paste into the note body.
- Attachments are stored in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no
  sub-folders).
- Reference in notes as ` + "`" + `![description](attachments/filename.png)` + "`" + ` or
  ` + "`" + `![[filename.png]]` + "`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
- Attachments referenced only by deleted notes are cleaned up when smart
  deletion is enabled.
`
