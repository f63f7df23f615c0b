// Package pptx extracts slide text from PowerPoint (.pptx) presentations.
package pptx
