// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ragai console.

This package defines the color palette and the Theme, the set of
pre-built Lip Gloss styles every view renders with. All colors use
AdaptiveColor for automatic light/dark terminal detection; the theme
can also be forced dark or light from the config file.

Usage:

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.TabActive.Render("Chat")
*/
package styles
