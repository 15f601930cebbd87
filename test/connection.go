package test

import (
	"fmt"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/testclient"
)

func testRegister(serverAddr string) error {
	client, err := register("Connect and register", "smoke", serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Do("help", "Commands:")
}

func testBadLogin(serverAddr string) error {
	const testName = "Bad login"

	client, err := testclient.Dial(serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	logAction(testName, "Logging in with an unknown account")
	time.Sleep(100 * time.Millisecond)
	for _, line := range []string{"l", uniqueName("ghost"), "NotThePassword1"} {
		if err := client.SendCommand(line); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return client.Expect("Invalid username or password.", testclient.DefaultTimeout)
}

func testReturningPlayer(serverAddr string) error {
	const testName = "Returning player"

	client, err := register(testName, "return", serverAddr)
	if err != nil {
		return err
	}
	name, password := client.Name, client.Password
	if err := client.Do("quit", "Your progress is saved."); err != nil {
		client.Close()
		return err
	}
	client.Close()

	// The server needs a moment to save and release the session.
	time.Sleep(300 * time.Millisecond)
	logAction(testName, fmt.Sprintf("Logging back in as '%s'", name))
	again, err := testclient.Login(name, password, serverAddr)
	if err != nil {
		return err
	}
	defer again.Close()
	if !again.HasMessage("Welcome back") {
		return fmt.Errorf("no welcome back for %s: %q", name, again.GetMessages())
	}
	return nil
}
