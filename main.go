// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/tagscope/tagscope/cmd/tagscope"

func main() {
	cmd.Execute()
}
