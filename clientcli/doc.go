// Package clientcli provides a client library for talking to a filekeep
// server.
//
// It registers, looks up, lists and deletes file records. Requests that
// change the registry are presigned with the stowry-go scheme so the server
// can attribute them to the access key's account.
// The package includes profile-based configuration for managing connections to multiple servers.
//
// # Basic Usage
//
//	cfg := &clientcli.Config{
//		Endpoint:  "http://localhost:5710",
//		AccessKey: "your-access-key",
//		SecretKey: "your-secret-key",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	added, err := client.AddFile(ctx, "report.pdf", "https://cdn.example.com/report.pdf")
//	files, err := client.ListFiles(ctx, "alice")
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, result)
package clientcli
