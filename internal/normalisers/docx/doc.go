// Package docx extracts text from Word (.docx) documents.
package docx
