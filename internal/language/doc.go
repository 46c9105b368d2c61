// Package language normalizes caller language hints and engine-detected
// languages to ISO 639-1 codes.
//
// Common codes, ISO 639-2 forms, and English names resolve through a small
// table; anything else is parsed as a BCP 47 tag with golang.org/x/text so
// regional variants such as "pt-BR" reduce to their base language.
package language
