// Package html extracts visible text from HTML documents and fetched pages.
package html
