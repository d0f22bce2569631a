package ui

import "github.com/pterm/pterm"

const LogoASCII = `
     ___________
    |  _______  |
    | |       | |
    | |  NFT  | |
    | |_______| |
    |___________|
      \       /
       \_____/

    /===========\
   /             \
  /    xnftctl    \
  \               /
   \             /
    \===========/
`

// PrintBanner prints the startup logo in the Xion accent colour.
func PrintBanner() {
	pterm.DefaultCenter.Println(pterm.NewRGB(255, 116, 0).Sprint(LogoASCII))
}
