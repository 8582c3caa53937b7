package model

// Document is a flexible map representing a JSON document to be indexed.
// Keys are field names; values are strings, numbers, booleans or arrays of
// them, and are converted to field text according to the index schema.
// Example: doc["product"], doc["sku"]
type Document map[string]interface{}
