// Package normalisers turns raw sources into domain documents.
//
//   - tabular: the customer CSV, its summary document and record documents
//   - pdf: regulatory PDFs, one document per page
package normalisers
