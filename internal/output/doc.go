// Package output holds mapped target records grouped by target sheet.
package output
