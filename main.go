// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/zephyrup/zephyrup/cmd/zephyrup"

func main() {
	cmd.Execute()
}
