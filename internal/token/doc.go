// Package token defines the lexical vocabulary of the C subset accepted by mcc.
package token
