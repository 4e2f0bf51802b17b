// Package source reads fragments and paragraphs from the scraper's CSV files.
//
// Fragment files carry the columns law_act_id, paragraph_id, text and
// is_clause_default, one row per scraped fragment in document order.
// Paragraph files carry law_act_id, paragraph_id and text.
package source
