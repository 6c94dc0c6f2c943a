// Command hearty is the CLI a user runs against a local
// hearty-cache-agent, which arbitrates coherent access to a hearty-store
// object store on their behalf.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/hearty/pkg/client"
)

var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hearty",
	Short:   "hearty talks to a local cache agent for coherent object store access",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("agent", "127.0.0.1:2547", "Cache agent address")
	rootCmd.AddCommand(initCmd, putCmd, getCmd, listCmd, destroyCmd)
}

func dialAgent(cmd *cobra.Command) (*client.StoreClient, error) {
	agentAddr, _ := cmd.Flags().GetString("agent")
	return client.Dial(agentAddr, "")
}

var initCmd = &cobra.Command{
	Use:   "init STORE_NAME",
	Short: "Create a new store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAgent(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Init(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(resp.Message)
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put STORE_NAME FILE_PATH LOCAL_FILE",
	Short: "Upload a local file's content under FILE_PATH in STORE_NAME",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeName, filePath, localFile := args[0], args[1], args[2]

		content, err := os.ReadFile(localFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", localFile, err)
		}

		c, err := dialAgent(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Put(cmd.Context(), storeName, filePath, content)
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Printf("put %s: object_id=%s\n", filePath, resp.FileID)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get STORE_NAME FILE_IDENTIFIER",
	Short: "Print the content of an object to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAgent(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		content, err := c.Get(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(content)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known stores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAgent(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(resp.Message)
		return nil
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy STORE_NAME",
	Short: "Remove a store entirely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAgent(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Destroy(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(resp.Message)
		return nil
	},
}
