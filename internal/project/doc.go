// Package project turns flat CSV rows into the nested records the remote
// API stores.
//
// Structured fields are spread over companion columns in the exports:
//
//	color, color_other                  choice and "other" values
//	site_address_{component}            one column per address component
//	stand_photos, stand_photos_caption  media ids and positional captions
//
// Repeatable entries live in their own file, {prefix}_{data_name}.csv, and
// point back at their parent through the parent id column.
//
// Known limitation: signature fields cannot be re-imported. They project to
// an empty placeholder, which Strip removes.
package project
