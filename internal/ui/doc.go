// SPDX-License-Identifier: EPL-2.0

// Package ui renders conversion progress in the terminal.
package ui
