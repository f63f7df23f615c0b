// Package pdf extracts text from PDF documents using poppler's pdftotext.
package pdf
