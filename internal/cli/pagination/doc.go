// Package pagination provides the limit/offset and sort flags shared by
// commands that list stored records, such as past submissions.
package pagination
